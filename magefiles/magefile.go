// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the tablesync project using Mage.
//
// Usage:
//
//	mage build        Compile the tablesync binary to bin/
//	mage test:all     Run every test
//	mage test:unit    Run tests in short mode
//	mage test:race    Run every test with the race detector
//	mage test:cover   Write a coverage profile to bin/coverage.out
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install tablesync to GOPATH/bin
package main

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "tablesync"
	binaryDir  = "bin"
	cmdDir     = "./cmd/tablesync"
	modulePath = "github.com/mesh-intelligence/tablesync"
)
