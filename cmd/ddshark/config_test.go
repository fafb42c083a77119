package main

import "testing"

func TestValidateRejectsFileAndInterfaceTogether(t *testing.T) {
	cfg := config{File: "dump.pcap", Interface: "eth0", RefreshRate: 4, AbnormalityCapacity: 1000}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for mutually exclusive --file and --interface")
	}
}

func TestValidateAcceptsFileAlone(t *testing.T) {
	cfg := config{File: "dump.pcap", RefreshRate: 4, AbnormalityCapacity: 1000}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAcceptsNeitherFileNorInterface(t *testing.T) {
	cfg := config{RefreshRate: 4, AbnormalityCapacity: 1000}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositiveRefreshRate(t *testing.T) {
	cfg := config{RefreshRate: 0, AbnormalityCapacity: 1000}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for non-positive --refresh-rate")
	}
}

func TestValidateRejectsNonPositiveAbnormalityCapacity(t *testing.T) {
	cfg := config{RefreshRate: 4, AbnormalityCapacity: 0}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for non-positive --abnormality-capacity")
	}
}
