package auth

import "testing"

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	// Empty store loads as absent, not as an error.
	if v, err := store.LoadVerifier(); err != nil || v != "" {
		t.Errorf("LoadVerifier() = (%q, %v), want (\"\", nil)", v, err)
	}
	if tok, err := store.LoadToken(); err != nil || tok != "" {
		t.Errorf("LoadToken() = (%q, %v), want (\"\", nil)", tok, err)
	}

	if err := store.SaveVerifier("my-verifier"); err != nil {
		t.Fatalf("SaveVerifier() error = %v", err)
	}
	if err := store.SaveToken("my-token"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	if v, err := store.LoadVerifier(); err != nil || v != "my-verifier" {
		t.Errorf("LoadVerifier() = (%q, %v), want (%q, nil)", v, err, "my-verifier")
	}
	if tok, err := store.LoadToken(); err != nil || tok != "my-token" {
		t.Errorf("LoadToken() = (%q, %v), want (%q, nil)", tok, err, "my-token")
	}

	if err := store.DeleteVerifier(); err != nil {
		t.Fatalf("DeleteVerifier() error = %v", err)
	}
	if v, _ := store.LoadVerifier(); v != "" {
		t.Errorf("LoadVerifier() after delete = %q, want empty", v)
	}

	// Deleting twice is not an error.
	if err := store.DeleteVerifier(); err != nil {
		t.Errorf("second DeleteVerifier() error = %v", err)
	}

	if err := store.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if tok, _ := store.LoadToken(); tok != "" {
		t.Errorf("LoadToken() after delete = %q, want empty", tok)
	}
}
