package interp

import (
	"strconv"
	"strings"
	"sync"

	"github.com/lutradb/lutra/compiler/ram"
)

// recordPool interns packed records: identical argument lists map to
// the same Domain index, so record equality is index equality.
type recordPool struct {
	mu    sync.Mutex
	ids   map[string]ram.Domain
	lists [][]ram.Domain
}

func newRecordPool() *recordPool {
	return &recordPool{ids: make(map[string]ram.Domain)}
}

func (p *recordPool) pack(args []ram.Domain) ram.Domain {
	var b strings.Builder
	for i, v := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	k := b.String()
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[k]; ok {
		return id
	}
	id := ram.Domain(len(p.lists))
	p.ids[k] = id
	p.lists = append(p.lists, append([]ram.Domain(nil), args...))
	return id
}

// unpack returns the argument list interned at id.
func (p *recordPool) unpack(id ram.Domain) ([]ram.Domain, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= ram.Domain(len(p.lists)) {
		return nil, false
	}
	return p.lists[id], true
}
