package kernelcore

import (
	"fmt"

	"github.com/symkern/kernelcore/internal/clock"
	"github.com/symkern/kernelcore/internal/collab"
	"github.com/symkern/kernelcore/internal/dispatch"
	"github.com/symkern/kernelcore/internal/hal"
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/logging"
	"github.com/symkern/kernelcore/internal/metrics"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// Kernel is the top-level entry point for booting a guest kernel core
// and driving its dispatch loop: it wires a dispatch.Context, an
// ordinal dispatch table for the configured ABI revision, and the
// cooperative scheduler's run loop together.
type Kernel struct {
	ctx     *dispatch.Context
	table   *dispatch.Table
	metrics *metrics.Metrics
	log     *logging.Logger
}

// KernelParams configures a new Kernel. Only Memory is required; the
// rest fall back to the reference collaborators (HostHAL, HostClock) and
// a private metrics registry when left zero.
type KernelParams struct {
	// Memory is the guest address-space/register collaborator. Required.
	Memory collab.Memory

	// HAL answers HalFunction SVC calls; defaults to hal.NewHostHAL().
	HAL collab.HAL

	// Loader constructs process images; nil disables process-image
	// loading (LibraryLookup and friends still report NotSupported).
	Loader collab.Loader

	// Scripting receives panic notifications; nil disables the hook.
	Scripting collab.Scripting

	// Clock backs TimeNow/UTCOffset and the timer queue; defaults to
	// clock.NewHostClock().
	Clock clock.Clock

	// Revision selects the guest OS ABI generation's dispatch table.
	// Zero value falls back to Revision94 (the full subset).
	Revision uapi.Revision

	// Metrics receives Prometheus instrumentation; nil constructs a
	// private, unregistered metrics.Metrics via metrics.NoOp().
	Metrics *metrics.Metrics

	// Logger overrides the default package logger.
	Logger *logging.Logger
}

// DefaultKernelParams returns KernelParams with every reference
// collaborator wired in, requiring only Memory to be filled in by the
// caller.
func DefaultKernelParams(mem collab.Memory) KernelParams {
	return KernelParams{
		Memory:   mem,
		HAL:      hal.NewHostHAL(),
		Clock:    clock.NewHostClock(),
		Revision: uapi.Revision94,
	}
}

// NewKernel constructs a Kernel ready to dispatch SVC calls, but with no
// processes or threads registered yet; callers install the initial
// process/thread via RegisterProcess/RegisterThread before dispatching.
func NewKernel(params KernelParams) (*Kernel, error) {
	if params.Memory == nil {
		return nil, NewError("NewKernel", uapi.Argument, "Memory collaborator is required")
	}
	if params.HAL == nil {
		params.HAL = hal.NewHostHAL()
	}
	if params.Clock == nil {
		params.Clock = clock.NewHostClock()
	}
	if params.Revision == "" {
		params.Revision = uapi.Revision94
	}
	if params.Metrics == nil {
		params.Metrics = metrics.NoOp()
	}
	if params.Logger == nil {
		params.Logger = logging.Default()
	}

	ctx := dispatch.NewContext(params.Memory, params.HAL, params.Loader, params.Clock)
	table := dispatch.BuildTable(params.Revision)

	return &Kernel{ctx: ctx, table: table, metrics: params.Metrics, log: params.Logger}, nil
}

// Context exposes the kernel's dispatch.Context for callers that need to
// register processes/threads or look up live kernel objects directly
// (the demo CLI and integration tests both need this).
func (k *Kernel) Context() *dispatch.Context { return k.ctx }

// BootProcess registers a new process and its initial thread, returning
// the process and the thread for the caller's bookkeeping. This is the
// minimal process-creation path; full guest image loading goes through
// the Loader collaborator and is outside this helper's scope.
func (k *Kernel) BootProcess(name, cmdLine string, priority int) (*scheduler.Process, *scheduler.Thread) {
	procObj := k.ctx.Kernel.Registry.Create(kernelobj.KindProcess, name, kernelobj.OwnerRef{}, kernelobj.LocalAccess, nil)
	proc := scheduler.NewProcess(procObj.ID, name, cmdLine)
	k.ctx.RegisterProcess(procObj.ID, proc)

	threadObj := k.ctx.Kernel.Registry.Create(kernelobj.KindThread, name+":main", kernelobj.OwnerRef{ProcessID: procObj.ID}, kernelobj.LocalAccess, nil)
	th := scheduler.NewThread(threadObj.ID, procObj.ID, name+":main", priority)
	k.ctx.RegisterThread(threadObj.ID, th)

	k.ctx.Scheduler.Resume(th)
	return proc, th
}

// Dispatch invokes one SVC call on behalf of caller, recording the
// outcome in Metrics.
func (k *Kernel) Dispatch(caller *scheduler.Thread, ordinal uint32, args [4]uint32) int32 {
	result := k.table.Dispatch(k.ctx, caller, ordinal, args)
	code := uapi.Ok
	if result < 0 {
		code = uapi.ErrorCode(result)
	}
	k.metrics.ObserveDispatch(ordinal, code)
	return result
}

// Run drives the cooperative scheduler until no thread is ready to run,
// returning the number of scheduling turns taken. It does not itself
// decode guest instructions; callers combine it with their own
// instruction-stepping loop, invoking Dispatch at each SVC trap. This
// method exists to expose the pure scheduling step to the demo CLI and
// integration tests.
func (k *Kernel) Run(step func(th *scheduler.Thread)) int {
	turns := 0
	for {
		th, ok := k.ctx.Scheduler.Next()
		if !ok {
			break
		}
		step(th)
		turns++
	}
	return turns
}

// String summarizes the kernel's configuration, used by the demo CLI's
// startup banner.
func (k *Kernel) String() string {
	return fmt.Sprintf("kernel(revision=%s)", k.table.Revision)
}
