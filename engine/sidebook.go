package engine

import (
	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// priceLevel is the FIFO queue of resting orders at a single price.
// Orders are appended in admission order and matched from the head.
type priceLevel struct {
	price  decimal.Decimal
	orders []Order
}

func (l *priceLevel) append(o Order) {
	l.orders = append(l.orders, o)
}

func (l *priceLevel) head() Order {
	return l.orders[0]
}

func (l *priceLevel) setHead(o Order) {
	l.orders[0] = o
}

func (l *priceLevel) popHead() {
	l.orders = l.orders[1:]
}

// removeByID drops the order with the given ID wherever it sits in the
// queue. Queues per level are short, so a linear scan is fine.
func (l *priceLevel) removeByID(orderID int64) bool {
	for i, o := range l.orders {
		if o.OrderID == orderID {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

func (l *priceLevel) empty() bool {
	return len(l.orders) == 0
}

func (l *priceLevel) totalQuantity() int64 {
	return lo.SumBy(l.orders, func(o Order) int64 { return o.Remaining })
}

// sideBook is an ordered price ladder for one side of the book. The
// buy side iterates highest price first, the sell side lowest first.
type sideBook struct {
	tree *rbt.Tree // decimal.Decimal -> *priceLevel
}

func newSideBook(side Side) *sideBook {
	cmp := askComparator
	if side == Buy {
		cmp = bidComparator
	}
	return &sideBook{tree: rbt.NewWith(cmp)}
}

func (b *sideBook) insert(o Order) {
	level := b.level(o.Price)
	if level == nil {
		level = &priceLevel{price: o.Price}
		b.tree.Put(o.Price, level)
	}
	level.append(o)
}

// remove deletes the order from its price level, dropping the level if
// it becomes empty. Returns false when the order is not resting.
func (b *sideBook) remove(o Order) bool {
	level := b.level(o.Price)
	if level == nil {
		return false
	}
	if !level.removeByID(o.OrderID) {
		return false
	}
	if level.empty() {
		b.tree.Remove(o.Price)
	}
	return true
}

// best returns the top priority level, or nil for an empty side.
func (b *sideBook) best() *priceLevel {
	node := b.tree.Left()
	if node == nil {
		return nil
	}
	return node.Value.(*priceLevel)
}

func (b *sideBook) removeLevel(price decimal.Decimal) {
	b.tree.Remove(price)
}

// walk visits levels in priority order until fn returns false.
func (b *sideBook) walk(fn func(*priceLevel) bool) {
	it := b.tree.Iterator()
	for it.Next() {
		if !fn(it.Value().(*priceLevel)) {
			return
		}
	}
}

func (b *sideBook) level(price decimal.Decimal) *priceLevel {
	if v, found := b.tree.Get(price); found {
		return v.(*priceLevel)
	}
	return nil
}

func askComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

func bidComparator(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}
