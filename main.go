package main

import "github.com/frahmantamala/travel-request/cmd"

func main() {
	cmd.Execute()
}
