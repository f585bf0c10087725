package models

// Photo is one captured photo reference. The gallery owns the row, the host
// filesystem (or object storage) owns the bytes behind FilePath.
type Photo struct {
	ID        int64    `gorm:"column:id;primaryKey" json:"id"`
	FilePath  string   `gorm:"column:filePath;not null" json:"filePath"`
	Timestamp string   `gorm:"column:timestamp;not null" json:"timestamp"` // capture moment, ISO-8601
	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	Name      *string  `gorm:"column:name" json:"name"`
}

// TableName pins the table to the name existing gallery databases use.
func (Photo) TableName() string { return "images" }

// HasLocation reports whether the photo carries a coordinate pair.
func (p Photo) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Label returns the display name, or "" when none was recorded.
func (p Photo) Label() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// PhotoInput is the payload for creating a Photo.
type PhotoInput struct {
	FilePath  string   `json:"filePath"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      *string  `json:"name"`
}

// PhotoUpdate changes the mutable fields of a Photo. Nil fields are left alone.
type PhotoUpdate struct {
	Name          *string  `json:"name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ClearLocation bool     `json:"clearLocation"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PhotoStats summarizes the gallery. Oldest and Newest are capture
// timestamps and are empty when there are no photos.
type PhotoStats struct {
	Total     int64  `json:"total"`
	Geotagged int64  `json:"geotagged"`
	Oldest    string `json:"oldest,omitempty"`
	Newest    string `json:"newest,omitempty"`
}
