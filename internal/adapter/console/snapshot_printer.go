package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// SnapshotPrinter writes a one-screen summary of every applied dashboard snapshot.
type SnapshotPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	role   domain.Role
	logger logger.Logger
}

func NewSnapshotPrinter(out io.Writer, role domain.Role, logger logger.Logger) *SnapshotPrinter {
	return &SnapshotPrinter{
		out:    out,
		role:   role,
		logger: logger,
	}
}

func (p *SnapshotPrinter) HandleSnapshot(snap domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Debug("snapshot_received", fmt.Sprintf("Received snapshot #%d", snap.Sequence), "", map[string]interface{}{
		"role":     p.role,
		"tables":   len(snap.Tables),
		"sessions": len(snap.Sessions),
	})

	fmt.Fprintf(p.out, "[%s] snapshot #%d at %s: %d tables, %d open sessions, %d pending requests\n",
		p.role, snap.Sequence, snap.FetchedAt.Format("15:04:05"), len(snap.Tables), len(snap.Sessions), snap.PendingRequests())

	for _, table := range snap.Tables {
		sv, ok := snap.SessionForTable(table.ID)
		if !ok {
			fmt.Fprintf(p.out, "  table %3d  free\n", table.TableNumber)
			continue
		}
		fmt.Fprintf(p.out, "  table %3d  %-16s %s  total %s\n",
			table.TableNumber, sv.Status, itemSummary(sv.OrderItems), domain.SessionTotal(sv.OrderItems).StringFixed(2))
		for _, r := range sv.ServiceRequests {
			fmt.Fprintf(p.out, "             ! %s since %s\n", r.Type, r.CreatedAt.Format("15:04:05"))
		}
	}
}

func (p *SnapshotPrinter) HandleRealtimeStatus(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if connected {
		fmt.Fprintf(p.out, "[%s] live updates connected\n", p.role)
		return
	}
	fmt.Fprintf(p.out, "[%s] live updates lost, showing last snapshot\n", p.role)
}

func itemSummary(items []domain.OrderItem) string {
	counts := make(map[domain.OrderItemStatus]int)
	for _, it := range items {
		counts[it.Status] += it.Quantity
	}
	out := ""
	for _, st := range []domain.OrderItemStatus{domain.ItemDraft, domain.ItemPending, domain.ItemConfirmed, domain.ItemServed} {
		if counts[st] == 0 {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", st, counts[st])
	}
	if out == "" {
		return "no items"
	}
	return out
}
