package config

import "testing"

func TestGetVersionFromEnvironment(t *testing.T) {
	t.Setenv("APP_VERSION", "1.4.2")

	if got := GetVersion(); got != "1.4.2" {
		t.Errorf("Expected version '1.4.2', got '%s'", got)
	}
}

func TestGetVersionFromBuildStamp(t *testing.T) {
	t.Setenv("APP_VERSION", "")
	original := Version
	defer func() { Version = original }()

	Version = "2.0.0"
	if got := GetVersion(); got != "2.0.0" {
		t.Errorf("Expected stamped version '2.0.0', got '%s'", got)
	}
}
