// Package vote reduces neighbor labels to a single prediction.
package vote

import "github.com/YuminosukeSato/goknn/pkg/errors"

// Counter counts label occurrences and remembers the order in which labels
// were first seen.
type Counter struct {
	order  []int
	counts map[int]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[int]int)}
}

// Add records one occurrence of label.
func (c *Counter) Add(label int) {
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// Count returns how many times label was added.
func (c *Counter) Count(label int) int {
	return c.counts[label]
}

// Labels returns the distinct labels in first-seen order.
func (c *Counter) Labels() []int {
	return append([]int(nil), c.order...)
}

// Max returns the label with the highest count. Among labels sharing the
// highest count, the one seen first wins. ok is false when nothing was added.
func (c *Counter) Max() (label, count int, ok bool) {
	for _, l := range c.order {
		if n := c.counts[l]; n > count {
			label, count, ok = l, n, true
		}
	}
	return label, count, ok
}

// Majority returns the most frequent label in labels, breaking ties in
// favor of the label that appears first.
func Majority(labels []int) (int, error) {
	if len(labels) == 0 {
		return 0, errors.NewValueError("vote.Majority", "no labels to vote on")
	}
	c := NewCounter()
	for _, l := range labels {
		c.Add(l)
	}
	label, _, _ := c.Max()
	return label, nil
}
