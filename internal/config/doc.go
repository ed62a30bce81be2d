// Package config provides configuration structures and utilities for proxyscan.
// It defines the main configuration options for probing candidates, speed tier
// thresholds, enrichment, and report generation preferences, along with the
// YAML loader and its search order.
package config
