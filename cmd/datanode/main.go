package main

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"fmt"
	"log"
	"os"

	"github.com/interuss/datanode/internal/dss"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Println(fmt.Errorf("%s error: %v", dss.ProgramName, err))
		os.Exit(1)
	}
}
