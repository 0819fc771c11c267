package main

import (
	"github.com/subsonant/audioengine/cmd"
	"github.com/subsonant/audioengine/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
