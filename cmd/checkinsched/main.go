package main

import "github.com/example/checkin-scheduler/cmd"

func main() {
	cmd.Execute()
}
