package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/home.html", want: "user/home.html"},
		{name: "simple prefix", prefix: "root", key: "user/home.html", want: "root/user/home.html"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/home.html", want: "root/user/home.html"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/home.html", want: "root/user/home.html"},
		{name: "nested prefix", prefix: "root/sub", key: "user/home.html", want: "root/sub/user/home.html"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
