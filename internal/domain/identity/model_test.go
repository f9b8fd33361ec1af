package identity

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"doctor", RoleDoctor, false},
		{"DOCTOR", RoleDoctor, false},
		{"Physician", RoleDoctor, false},
		{" nurse ", RoleNurse, false},
		{"laboratory_technician", RoleLabTech, false},
		{"clinic_admin", RoleTenantAdmin, false},
		{"patient", RolePatient, false},
		{"platform_admin", RolePlatformAdmin, false},
		{"wizard", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleProfessional(t *testing.T) {
	if !RoleDoctor.Professional() {
		t.Error("doctor should be professional")
	}
	if RolePatient.Professional() {
		t.Error("patient should not be professional")
	}
	if RolePlatformAdmin.Professional() {
		t.Error("platform_admin should not be professional")
	}
}
