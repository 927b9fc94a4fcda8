package dispatch

import (
	"github.com/symkern/kernelcore/internal/clock"
	"github.com/symkern/kernelcore/internal/collab"
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/logging"
	"github.com/symkern/kernelcore/internal/property"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/timer"
)

// Context is the explicit kernel state passed into every handler,
// replacing the source's global mutable kernel/memory/scripting-manager
// singletons per the Design Note: "pass explicit context into every
// handler. The dispatch table invokes fn(ctx, args) -> i32."
type Context struct {
	Kernel    *kernelobj.Kernel
	Scheduler *scheduler.Scheduler
	Memory    collab.Memory
	HAL       collab.HAL
	Loader    collab.Loader
	Scripting collab.Scripting
	Clock     clock.Clock
	Log       *logging.Logger

	Properties *property.Table
	Timers     *timer.Queue

	processes    map[kernelobj.ObjectID]*scheduler.Process
	threads      map[kernelobj.ObjectID]*scheduler.Thread
	handleTables map[kernelobj.ObjectID]*kernelobj.HandleTable

	destructors map[kernelobj.Kind]func(*kernelobj.Object)
}

// NewContext builds an empty kernel context over a fresh registry.
func NewContext(mem collab.Memory, hal collab.HAL, loader collab.Loader, clk clock.Clock) *Context {
	k := &kernelobj.Kernel{Registry: kernelobj.NewRegistry()}
	return &Context{
		Kernel:       k,
		Scheduler:    scheduler.New(),
		Memory:       mem,
		HAL:          hal,
		Loader:       loader,
		Clock:        clk,
		Log:          logging.Default(),
		Properties:   property.NewTable(),
		Timers:       timer.NewQueue(clk),
		processes:    make(map[kernelobj.ObjectID]*scheduler.Process),
		threads:      make(map[kernelobj.ObjectID]*scheduler.Thread),
		handleTables: make(map[kernelobj.ObjectID]*kernelobj.HandleTable),
		destructors:  make(map[kernelobj.Kind]func(*kernelobj.Object)),
	}
}

// HandleTableFor returns the handle table owned by owner (a process or
// thread object id), creating one on first use.
func (c *Context) HandleTableFor(owner kernelobj.ObjectID) *kernelobj.HandleTable {
	t, ok := c.handleTables[owner]
	if !ok {
		t = kernelobj.NewHandleTable()
		c.handleTables[owner] = t
	}
	return t
}

// Thread looks up a scheduler.Thread by kernel object id.
func (c *Context) Thread(id kernelobj.ObjectID) *scheduler.Thread { return c.threads[id] }

// Process looks up a scheduler.Process by kernel object id.
func (c *Context) Process(id kernelobj.ObjectID) *scheduler.Process { return c.processes[id] }

// RegisterThread makes th findable by its kernel object id and installs
// its handle-table scope.
func (c *Context) RegisterThread(id kernelobj.ObjectID, th *scheduler.Thread) {
	c.threads[id] = th
	c.handleTables[id] = kernelobj.NewHandleTable()
}

// RegisterProcess makes p findable by its kernel object id and installs
// its handle-table scope.
func (c *Context) RegisterProcess(id kernelobj.ObjectID, p *scheduler.Process) {
	c.processes[id] = p
	c.handleTables[id] = kernelobj.NewHandleTable()
}
