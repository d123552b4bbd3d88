// Command auth runs the SmartPlant authentication service.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smartplant/auth/internal/auth/app"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.BuildVersion)
		return
	}

	application, err := app.New(app.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartplant-auth: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "smartplant-auth: %v\n", err)
		os.Exit(1)
	}
}
