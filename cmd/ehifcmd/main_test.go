package main

import (
	"strings"
	"testing"
)

func TestDescribeHeader(t *testing.T) {
	var sb strings.Builder
	if err := describeHeader(&sb, []string{"DE", "00"}); err != nil {
		t.Fatal(err)
	}
	want := "class=read  param=STOP [0]  data=F32(3) [11 0]\n"
	if !strings.HasSuffix(sb.String(), want) {
		t.Errorf("got %q, want suffix %q", sb.String(), want)
	}
	if _, err := parseHex16([]string{"0x1G"}); err == nil {
		t.Error("expected error for bad hex")
	}
}

func TestDescribeSpec(t *testing.T) {
	var sb strings.Builder
	if err := describeSpec(&sb, []string{"11", "82", "-1"}); err != nil {
		t.Fatal(err)
	}
	if got, want := sb.String(), "F32(3) F16(21) J(-1)  fixed=12 record=42\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if err := describeSpec(&sb, []string{"4"}); err == nil {
		t.Error("expected error for width code 0")
	}
	if err := describeSpec(&sb, []string{"200"}); err == nil {
		t.Error("expected error for out of range opcode")
	}
}
