package wifi

import (
	"context"
	"testing"

	"github.com/HerbHall/wlanix/internal/wlanix"
)

func TestStaIface_reports_name(t *testing.T) {
	s, _, _ := testServer(t)
	requests := make(chan wlanix.WifiStaIfaceRequest)
	go s.ServeStaIface(context.Background(), requests)
	defer close(requests)

	c, ch := wlanix.NewCompleter[string]()
	requests <- wlanix.StaIfaceGetName{C: c}
	if got := <-ch; got != IfaceName {
		t.Errorf("name = %q, want %q", got, IfaceName)
	}
}
