package attendance

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFormatEmployeeID(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{0: "", 1: "EMP001", 42: "EMP042", 999: "EMP999", 1234: "EMP1234"}
	for in, want := range cases {
		if got := FormatEmployeeID(in); got != want {
			t.Errorf("FormatEmployeeID(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestShiftDescriptor_JSON(t *testing.T) {
	t.Parallel()

	var e Employee
	if err := json.Unmarshal([]byte(`{"id":1,"shiftDetails":"9 AM - 6 PM"}`), &e); err != nil {
		t.Fatalf("unmarshal text shift: %v", err)
	}
	if e.Shift.Text != "9 AM - 6 PM" || e.Shift.String() != "9 AM - 6 PM" {
		t.Fatalf("unexpected text shift %+v", e.Shift)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"shiftDetails":{"shiftName":"Morning","startTime":"09:00","endTime":"18:00"}}`), &e); err != nil {
		t.Fatalf("unmarshal object shift: %v", err)
	}
	if e.Shift.String() != "Morning (09:00 - 18:00)" {
		t.Fatalf("unexpected object shift label %q", e.Shift.String())
	}
	b, err := json.Marshal(e.Shift)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"shiftName":"Morning"`) {
		t.Fatalf("structured shift should marshal as object, got %s", b)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"shiftDetails":null}`), &e); err != nil {
		t.Fatalf("unmarshal null shift: %v", err)
	}
	if !e.Shift.IsZero() {
		t.Fatalf("null shift should be zero, got %+v", e.Shift)
	}

	if err := json.Unmarshal([]byte(`{"shiftDetails":12}`), &e); err == nil {
		t.Fatal("expected error for numeric shift")
	}
}

func TestEmployee_PasswordOmitted(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Employee{ID: 1, Name: "a", Password: "x"}.Public())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "password") {
		t.Fatalf("public employee leaks password: %s", b)
	}
}

func TestEmployee_Validate(t *testing.T) {
	t.Parallel()

	valid := Employee{Name: "Asha", Email: "asha@example.com", Role: "QA Tester", Status: EmployeeActive}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		mutate func(*Employee)
		want   error
	}{
		{func(e *Employee) { e.Name = "  " }, ErrInvalidName},
		{func(e *Employee) { e.Email = "asha" }, ErrInvalidEmail},
		{func(e *Employee) { e.Email = "@example.com" }, ErrInvalidEmail},
		{func(e *Employee) { e.Email = "asha@" }, ErrInvalidEmail},
		{func(e *Employee) { e.Role = "Wizard" }, ErrInvalidRole},
		{func(e *Employee) { e.Status = "Retired" }, ErrInvalidStatus},
	}
	for i, tc := range cases {
		e := valid
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("case %d: got %v, want %v", i, err, tc.want)
		}
	}

	blank := Employee{Name: "b", Email: "b@x.io"}
	if err := blank.Validate(); err != nil {
		t.Fatalf("blank role and status should be allowed: %v", err)
	}
}

func TestUpdatePayload(t *testing.T) {
	t.Parallel()

	if got := (Employee{Password: "   "}).UpdatePayload(); got.Password != "" {
		t.Fatalf("blank password should be dropped, got %q", got.Password)
	}
	if got := (Employee{Password: "new"}).UpdatePayload(); got.Password != "new" {
		t.Fatalf("password should be kept, got %q", got.Password)
	}
}

func TestFilterEmployees(t *testing.T) {
	t.Parallel()

	list := []Employee{
		{ID: 1, Name: "Asha Rao", Email: "asha@x.io", Role: "QA Tester"},
		{ID: 2, Name: "Bilal", Email: "bilal@x.io", Role: "DevOps Engineer", Shift: ShiftDescriptor{Text: "Flexible"}},
		{ID: 12, Name: "Chen", Email: "chen@x.io", Role: "Admin"},
	}

	if got := FilterEmployees(list, ""); len(got) != 3 {
		t.Fatalf("empty term should keep all, got %d", len(got))
	}
	if got := FilterEmployees(list, "ASHA"); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("case-insensitive name search failed: %+v", got)
	}
	if got := FilterEmployees(list, "emp012"); len(got) != 1 || got[0].ID != 12 {
		t.Fatalf("formatted id search failed: %+v", got)
	}
	if got := FilterEmployees(list, "flex"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("shift search failed: %+v", got)
	}
	if got := FilterEmployees(list, "nobody"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}
