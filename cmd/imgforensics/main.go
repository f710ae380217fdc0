// Package main provides the entry point for the imgforensics CLI.
//
// imgforensics inspects still images for signs of manipulation. It runs error
// level analysis, metadata consistency checks, noise pattern analysis and JPEG
// quality estimation, then combines the scores into a risk verdict.
//
// Usage:
//
//	imgforensics analyze photo.jpg
//	imgforensics analyze --json *.jpg
//	imgforensics watch ./incoming
//
// See --help for all available options.
package main

func main() {
	Execute()
}
