package protocol

import (
	"testing"
	"time"
)

func TestTiming(t *testing.T) {
	hashRate, fullScanDuration := Timing(1, 485, NumCores)
	if hashRate.String() != "325.92 GH/s" {
		t.Fatal(hashRate.String())
	}
	if fullScanDuration < 13*time.Millisecond || fullScanDuration > 13300*time.Microsecond {
		t.Fatal(fullScanDuration)
	}
	if _, d := Timing(0, 485, NumCores); d != 0 {
		t.Fatal(d)
	}
}
