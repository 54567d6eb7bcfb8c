package main

import "github.com/dcm2610/StellarStack-sub000/cmd"

func main() {
	cmd.Execute()
}
