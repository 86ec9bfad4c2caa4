package main

import "github.com/ValentinKolb/kolist/cmd"

func main() {
	cmd.Execute()
}
