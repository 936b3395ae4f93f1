package main

import "github.com/davidjes1/fitnesstracker/cmd/trackerctl/cmd"

func main() {
	cmd.Execute()
}
