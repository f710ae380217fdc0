// Package config provides configuration structures and utilities for
// imgforensics. It merges CLI flags with the optional .imgforensics YAML file
// and builds the forensics engine from the result.
package config
