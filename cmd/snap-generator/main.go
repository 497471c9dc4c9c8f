package main

import "github.com/oshokin/snap-generator/cmd/snap-generator/cmd"

func main() {
	cmd.Execute()
}
