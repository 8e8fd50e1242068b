package cloud

import "testing"

func TestIsS3URL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"s3://bucket/key.csv", true},
		{"s3://", true},
		{"providers.csv", false},
		{"/tmp/s3://x", false},
		{"S3://bucket/key", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsS3URL(tt.in); got != tt.want {
			t.Errorf("IsS3URL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in         string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{in: "s3://my-bucket/input/providers.csv", wantBucket: "my-bucket", wantKey: "input/providers.csv"},
		{in: "s3://b/k", wantBucket: "b", wantKey: "k"},
		{in: "s3://b/a/b/c.csv.gz", wantBucket: "b", wantKey: "a/b/c.csv.gz"},
		{in: "s3://bucket", wantErr: true},
		{in: "s3://bucket/", wantErr: true},
		{in: "s3://bucket/dir/", wantErr: true},
		{in: "s3:///key", wantErr: true},
		{in: "https://bucket/key", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseS3URL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got bucket=%q key=%q", bucket, key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}
