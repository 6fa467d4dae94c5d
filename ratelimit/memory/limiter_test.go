package memorylimiter

import (
	"testing"
	"time"
)

func TestAllowNamedWithinLimit(t *testing.T) {
	l := New(map[string]Limit{"notify": {Limit: 2, Window: time.Minute}})

	for i := 0; i < 2; i++ {
		ok, err := l.AllowNamed("notify", "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.AllowNamed("notify", "1.2.3.4"); ok {
		t.Error("third request should be denied")
	}
	// Another key has its own window.
	if ok, _ := l.AllowNamed("notify", "5.6.7.8"); !ok {
		t.Error("other key should be allowed")
	}
}

func TestAllowNamedWindowSlides(t *testing.T) {
	l := New(map[string]Limit{"notify": {Limit: 1, Window: time.Minute}})
	current := time.Now()
	l.now = func() time.Time { return current }

	if ok, _ := l.AllowNamed("notify", "k"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := l.AllowNamed("notify", "k"); ok {
		t.Fatal("second request allowed within window")
	}
	current = current.Add(time.Minute + time.Second)
	if ok, _ := l.AllowNamed("notify", "k"); !ok {
		t.Error("request after window denied")
	}
}

func TestAllowNamedValidation(t *testing.T) {
	l := New(nil)
	if _, err := l.AllowNamed("", "k"); err == nil {
		t.Error("empty bucket should error")
	}
	if ok, _ := l.AllowNamed("anything", "k"); !ok {
		t.Error("default limit should allow")
	}
}
