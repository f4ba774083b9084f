package idgraph

import (
	"encoding/json"
	"reflect"
	"testing"
)

func strptr(s string) *string { return &s }

// ownersAgree checks the at-rest ownership invariant on a reconciled patch:
// all three aliases denote the same owner set, and identityId is the head
// of the list or absent.
func ownersAgree(t *testing.T, p PartialService) {
	t.Helper()
	if !reflect.DeepEqual(p.ProfileIDs, p.OwnerIdentityIDs) {
		t.Errorf("profileIds %v != ownerIdentityIds %v", p.ProfileIDs, p.OwnerIdentityIDs)
	}
	if len(p.ProfileIDs) == 0 {
		if p.IdentityID != nil {
			t.Errorf("identityId %q set with empty owner list", *p.IdentityID)
		}
		return
	}
	if p.IdentityID == nil || *p.IdentityID != p.ProfileIDs[0] {
		t.Errorf("identityId = %v, want %q", p.IdentityID, p.ProfileIDs[0])
	}
}

func TestReconcileOwnership(t *testing.T) {
	existing := &Service{OwnerIDs: []string{"id-old"}}

	tests := []struct {
		name     string
		incoming PartialService
		existing *Service
		want     []string
	}{
		{"profileIds wins", PartialService{ProfileIDs: []string{"a", "b"}, OwnerIdentityIDs: []string{"x"}, IdentityID: strptr("y")}, nil, []string{"a", "b"}},
		{"ownerIdentityIds second", PartialService{OwnerIdentityIDs: []string{"x"}, IdentityID: strptr("y")}, nil, []string{"x"}},
		{"identityId singleton", PartialService{IdentityID: strptr("y")}, nil, []string{"y"}},
		{"partial update keeps existing owners", PartialService{Name: strptr("renamed")}, existing, []string{"id-old"}},
		{"nothing anywhere", PartialService{}, nil, nil},
		{"empty arrays count as unsupplied", PartialService{ProfileIDs: []string{}, OwnerIdentityIDs: []string{}}, existing, []string{"id-old"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.incoming, tt.existing, nil)
			ownersAgree(t, got)
			if len(tt.want) == 0 && len(got.ProfileIDs) == 0 {
				return
			}
			if !reflect.DeepEqual(got.ProfileIDs, tt.want) {
				t.Errorf("owners = %v, want %v", got.ProfileIDs, tt.want)
			}
		})
	}
}

func TestReconcileURL(t *testing.T) {
	existing := &Service{WebsiteURL: "https://old.example"}

	tests := []struct {
		name     string
		incoming PartialService
		existing *Service
		want     string // "" means both absent
	}{
		{"websiteUrl wins", PartialService{WebsiteURL: strptr("https://site"), LoginURL: strptr("https://login")}, nil, "https://site"},
		{"loginUrl fallback", PartialService{LoginURL: strptr("https://login")}, nil, "https://login"},
		{"existing carried to both", PartialService{}, existing, "https://old.example"},
		{"nothing stays absent", PartialService{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.incoming, tt.existing, nil)
			if tt.want == "" {
				if got.WebsiteURL != nil || got.LoginURL != nil {
					t.Errorf("want both urls absent, got %v %v", got.WebsiteURL, got.LoginURL)
				}
				return
			}
			if got.WebsiteURL == nil || got.LoginURL == nil {
				t.Fatalf("want both urls set, got %v %v", got.WebsiteURL, got.LoginURL)
			}
			if *got.WebsiteURL != tt.want || *got.LoginURL != tt.want {
				t.Errorf("urls = %q %q, want both %q", *got.WebsiteURL, *got.LoginURL, tt.want)
			}
		})
	}
}

func TestReconcileBillingEmail(t *testing.T) {
	// billingEmailId wins over the legacy emailId; no forward-fill.
	got := Reconcile(PartialService{BillingEmailID: strptr("e1"), EmailID: strptr("e2")}, nil, nil)
	if got.BillingEmailID == nil || *got.BillingEmailID != "e1" || got.EmailID == nil || *got.EmailID != "e1" {
		t.Errorf("billing email aliases = %v %v, want both e1", got.BillingEmailID, got.EmailID)
	}

	got = Reconcile(PartialService{EmailID: strptr("e2")}, nil, nil)
	if got.BillingEmailID == nil || *got.BillingEmailID != "e2" {
		t.Errorf("legacy emailId not mirrored: %v", got.BillingEmailID)
	}

	existing := &Service{BillingEmailID: "e-old"}
	got = Reconcile(PartialService{}, existing, nil)
	if got.BillingEmailID != nil || got.EmailID != nil {
		t.Errorf("billing email forward-filled: %v %v", got.BillingEmailID, got.EmailID)
	}
}

func TestReconcileLoginEmailDerivation(t *testing.T) {
	emails := func(id string) (string, bool) {
		if id == "e1" {
			return "billing@example.com", true
		}
		return "", false
	}

	t.Run("derived when never set", func(t *testing.T) {
		got := Reconcile(PartialService{BillingEmailID: strptr("e1")}, nil, emails)
		if got.LoginEmail == nil || *got.LoginEmail != "billing@example.com" {
			t.Errorf("loginEmail = %v, want derived address", got.LoginEmail)
		}
	})

	t.Run("derived from existing billing email", func(t *testing.T) {
		existing := &Service{BillingEmailID: "e1"}
		got := Reconcile(PartialService{}, existing, emails)
		if got.LoginEmail == nil || *got.LoginEmail != "billing@example.com" {
			t.Errorf("loginEmail = %v, want derived address", got.LoginEmail)
		}
	})

	t.Run("explicit value never overwritten", func(t *testing.T) {
		var p PartialService
		p.SetLoginEmail("me@example.com")
		p.BillingEmailID = strptr("e1")
		got := Reconcile(p, nil, emails)
		if got.LoginEmail == nil || *got.LoginEmail != "me@example.com" {
			t.Errorf("loginEmail = %v, want user value kept", got.LoginEmail)
		}
	})

	t.Run("cleared value stays cleared", func(t *testing.T) {
		cleared := ""
		existing := &Service{BillingEmailID: "e1", LoginEmail: &cleared}
		got := Reconcile(PartialService{}, existing, emails)
		if got.LoginEmail != nil {
			t.Errorf("loginEmail = %q, want no derivation after a clear", *got.LoginEmail)
		}
	})
}

func TestPartialServiceTriState(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		provided     bool
		wantClear    bool
		wantValue    string
	}{
		{"absent", `{"name":"x"}`, false, false, ""},
		{"null clears", `{"loginEmail":null}`, true, true, ""},
		{"value", `{"loginEmail":"me@example.com"}`, true, false, "me@example.com"},
		{"empty string clears too", `{"loginEmail":""}`, true, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PartialService
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.loginEmailProvided != tt.provided {
				t.Errorf("provided = %v, want %v", p.loginEmailProvided, tt.provided)
			}
			if tt.wantClear && p.LoginEmail != nil {
				t.Errorf("want nil (clear), got %q", *p.LoginEmail)
			}
			if !tt.wantClear && tt.provided && (p.LoginEmail == nil || *p.LoginEmail != tt.wantValue) {
				t.Errorf("loginEmail = %v, want %q", p.LoginEmail, tt.wantValue)
			}
		})
	}
}

func TestApplyClearSticks(t *testing.T) {
	s := NewService("Figma")
	var p PartialService
	p.SetLoginEmail("")
	s.Apply(Reconcile(p, s, nil))
	if s.LoginEmail == nil || *s.LoginEmail != "" {
		t.Fatalf("clear not recorded: %v", s.LoginEmail)
	}

	// A later patch with no login-email intent must not resurrect it.
	emails := func(string) (string, bool) { return "derived@example.com", true }
	s.BillingEmailID = "e1"
	s.Apply(Reconcile(PartialService{Name: strptr("Figma Pro")}, s, emails))
	if *s.LoginEmail != "" {
		t.Errorf("cleared loginEmail overwritten: %q", *s.LoginEmail)
	}
}
