package db

import "testing"

func TestValidTimezone(t *testing.T) {
	valid := []string{"UTC", "America/New_York", "Etc/GMT+2", "+05:30", "Asia/Ho_Chi_Minh"}
	for _, tz := range valid {
		if !validTimezone(tz) {
			t.Fatalf("validTimezone(%q)=false want=true", tz)
		}
	}
	invalid := []string{"UTC'; DROP TABLE campaigns; --", "UTC'", "Europe/Berlin ", "a\nb"}
	for _, tz := range invalid {
		if validTimezone(tz) {
			t.Fatalf("validTimezone(%q)=true want=false", tz)
		}
	}
}

func TestSetTimezone_RejectsMalformedValue(t *testing.T) {
	err := SetTimezone(&DB{}, "UTC'; DROP TABLE campaigns; --")
	if err == nil {
		t.Fatalf("malformed timezone must be rejected before reaching the database")
	}
}
