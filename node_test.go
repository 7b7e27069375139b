package cube

import "testing"

func TestNodeTouched(t *testing.T) {
	n := &Node{}
	if n.Touched() {
		t.Errorf("fresh node reports touched")
	}

	n.Hypotheses = append(n.Hypotheses, &Hypothesis{})
	if !n.Touched() {
		t.Errorf("node with a hypothesis reports untouched")
	}
}

func TestPushMonitorEvictsOldest(t *testing.T) {
	n := &Node{}

	for i := 0; i < MonitorQueueSize+2; i++ {
		n.pushMonitor(float64(i))
	}

	if len(n.MonitorQueue) != MonitorQueueSize {
		t.Fatalf("queue length = %d, want %d", len(n.MonitorQueue), MonitorQueueSize)
	}
	if n.MonitorQueue[0] != 2 {
		t.Errorf("oldest surviving entry = %v, want 2", n.MonitorQueue[0])
	}
}

func TestResetMonitor(t *testing.T) {
	n := &Node{}
	n.pushMonitor(1.0)
	n.pushMonitor(2.0)

	n.resetMonitor()

	if len(n.MonitorQueue) != 0 {
		t.Errorf("queue length after reset = %d, want 0", len(n.MonitorQueue))
	}
}
