package main

import "photogallery/cmd"

func main() {
	cmd.Execute()
}
