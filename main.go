package main

import "github.com/frahmantamala/report-hub/cmd"

func main() {
	cmd.Execute()
}
