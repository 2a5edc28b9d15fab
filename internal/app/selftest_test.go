package app

import "testing"

func TestSelfTestFullProfile(t *testing.T) {
	if err := RunSelfTest(SelfTestOptions{Profile: "full"}); err != nil {
		t.Fatalf("self-test: %v", err)
	}
}

func TestSelfTestQuadrantProfile(t *testing.T) {
	if err := RunSelfTest(SelfTestOptions{Profile: "quadrant"}); err != nil {
		t.Fatalf("self-test: %v", err)
	}
}

func TestSelfTestUnknownProfile(t *testing.T) {
	if err := RunSelfTest(SelfTestOptions{Profile: "dish"}); err == nil {
		t.Fatal("unknown profile accepted")
	}
}
