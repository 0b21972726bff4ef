package main

import "github.com/apotheka/dispense-station/cmd"

func main() {
	cmd.Execute()
}
