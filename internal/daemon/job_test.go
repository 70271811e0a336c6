package daemon

import "testing"

func TestValidateJob(t *testing.T) {
	cases := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"valid", Job{ID: "job-1", URI: "formgate://forms/1"}, false},
		{"missing id", Job{URI: "formgate://forms/1"}, true},
		{"missing uri", Job{ID: "job-1"}, true},
		{"traversal id", Job{ID: "../escape", URI: "formgate://forms/1"}, true},
		{"bad characters", Job{ID: "job 1!", URI: "formgate://forms/1"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateJob(&c.job)
			if (err != nil) != c.wantErr {
				t.Errorf("ValidateJob(%+v) = %v, wantErr %v", c.job, err, c.wantErr)
			}
		})
	}
}

func TestIsJobFile(t *testing.T) {
	if !isJobFile("/inbox/job-1.json") {
		t.Error("expected .json accepted")
	}
	if isJobFile("/inbox/job-1.json.tmp") {
		t.Error("expected .tmp rejected")
	}
	if isJobFile("/inbox/notes.txt") {
		t.Error("expected non-json rejected")
	}
}

func TestFileID(t *testing.T) {
	if got := fileID("/inbox/job-7.json"); got != "job-7" {
		t.Errorf("expected job-7, got %q", got)
	}
	if got := fileID("/inbox/../weird name.json"); got != "unknown" {
		t.Errorf("expected unknown for unsafe names, got %q", got)
	}
}
