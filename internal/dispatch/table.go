package dispatch

import (
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// HandlerFunc is the uniform handler shape the Design Note prescribes:
// fn(ctx, args) -> i32, expressed here as a typed Result so the flattening
// to a raw int32 happens in exactly one place (FlattenInt32).
type HandlerFunc func(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32]

// Table is the ordinal → handler mapping for one guest OS ABI revision,
// split into the fast path (ordinals ≥ FastOrdinalBase, scalar get/set,
// no argument marshalling) and the slow path (full argument marshalling).
type Table struct {
	Revision uapi.Revision
	Fast     map[uint32]HandlerFunc
	Slow     map[uint32]HandlerFunc
}

var allFastHandlers = map[uint32]HandlerFunc{
	uapi.OrdWaitForAnyRequest:    handleWaitForAnyRequest,
	uapi.OrdHeap:                 handleHeap,
	uapi.OrdHeapSwitch:           handleHeapSwitch,
	uapi.OrdActiveScheduler:      handleActiveScheduler,
	uapi.OrdSetActiveScheduler:   handleSetActiveScheduler,
	uapi.OrdTrapHandler:          handleTrapHandler,
	uapi.OrdSetTrapHandler:       handleSetTrapHandler,
	uapi.OrdDebugMask:            handleDebugMask,
	uapi.OrdDebugMaskIndex:       handleDebugMaskIndex,
	uapi.OrdUserSvrRomHeaderAddr: handleUserSvrRomHeaderAddress,
	uapi.OrdSafeInc32:            handleSafeInc32,
	uapi.OrdUTCOffset:            handleUTCOffset,
	uapi.OrdGetGlobalUserData:    handleGetGlobalUserData,
}

// minimalFastOrdinals is the "9.3" minimal subset's fast-path coverage:
// ordinals 0,1,2,5,6,8,9,D.
var minimalFastOrdinals = []uint32{
	uapi.OrdWaitForAnyRequest,
	uapi.OrdHeap,
	uapi.OrdHeapSwitch,
	uapi.OrdActiveScheduler,
	uapi.OrdSetActiveScheduler,
	uapi.OrdTrapHandler,
	uapi.OrdSetTrapHandler,
	uapi.OrdDebugMaskIndex,
}

var allSlowHandlers = map[uint32]HandlerFunc{
	uapi.OrdObjectNext:               handleObjectNext,
	uapi.OrdChunkBase:                handleChunkBase,
	uapi.OrdChunkMaxSize:             handleChunkMaxSize,
	uapi.OrdLibraryLookup:            handleLibraryLookup,
	uapi.OrdProcessGetId:             handleProcessGetId,
	uapi.OrdDllFileName:              handleDllFileName,
	uapi.OrdProcessResume:            handleProcessResume,
	uapi.OrdProcessFilename:          handleProcessFilename,
	uapi.OrdProcessCommandLine:       handleProcessCommandLine,
	uapi.OrdProcessExitType:          handleProcessExitType,
	uapi.OrdProcessSetPriority:       handleProcessSetPriority,
	uapi.OrdProcessSetFlags:          handleProcessSetFlags,
	uapi.OrdSemaphoreWait:            handleSemaphoreWait,
	uapi.OrdSemaphoreSignal:          handleSemaphoreSignal,
	uapi.OrdSemaphoreSignalN:         handleSemaphoreSignalN,
	uapi.OrdServerReceive:            handleServerReceive,
	uapi.OrdServerCancel:             handleServerCancel,
	uapi.OrdSetSessionPtr:            handleSetSessionPtr,
	uapi.OrdSessionSend:              handleSessionSend,
	uapi.OrdThreadID:                 handleThreadID,
	uapi.OrdSessionShare:             handleSessionShare,
	uapi.OrdThreadResume:             handleThreadResume,
	uapi.OrdThreadSuspend:            handleThreadSuspend,
	uapi.OrdThreadSetPriority:        handleThreadSetPriority,
	uapi.OrdThreadSetFlags:           handleThreadSetFlags,
	uapi.OrdTimerCancel:              handleTimerCancel,
	uapi.OrdTimerAfter:               handleTimerAfter,
	uapi.OrdTimerAtUtc:               handleTimerAtUtc,
	uapi.OrdChangeNotifierLogon:      handleChangeNotifierLogon,
	uapi.OrdRequestSignal:            handleRequestSignal,
	uapi.OrdHandleName:               handleHandleName,
	uapi.OrdAfter:                    handleAfter,
	uapi.OrdMessageComplete:          handleMessageComplete,
	uapi.OrdTimeNow:                  handleTimeNow,
	uapi.OrdSessionSendSync:          handleSessionSendSync,
	uapi.OrdDllTls:                   handleDllTls,
	uapi.OrdHalFunction:              handleHalFunction,
	uapi.OrdProcessCommandLineLength: handleProcessCommandLineLength,
	uapi.OrdDebugPrint:               handleDebugPrint,
	uapi.OrdProcessType:              handleProcessType,
	uapi.OrdThreadCreate:             handleThreadCreate,
	uapi.OrdHandleClose:              handleHandleClose,
	uapi.OrdChunkCreate:              handleChunkCreate,
	uapi.OrdChunkAdjust:              handleChunkAdjust,
	uapi.OrdHandleOpenObject:         handleHandleOpenObject,
	uapi.OrdHandleDuplicate:          handleHandleDuplicate,
	uapi.OrdMutexCreate:              handleMutexCreate,
	uapi.OrdSemaphoreCreate:          handleSemaphoreCreate,
	uapi.OrdThreadKill:               handleThreadKill,
	uapi.OrdThreadLogon:              handleThreadLogon,
	uapi.OrdThreadLogonCancel:        handleThreadLogonCancel,
	uapi.OrdDllSetTls:                handleDllSetTls,
	uapi.OrdDllFreeTLS:               handleDllFreeTLS,
	uapi.OrdThreadRename:             handleThreadRename,
	uapi.OrdProcessLogon:             handleProcessLogon,
	uapi.OrdProcessLogonCancel:       handleProcessLogonCancel,
	uapi.OrdThreadProcess:            handleThreadProcess,
	uapi.OrdServerCreate:             handleServerCreate,
	uapi.OrdSessionCreate:            handleSessionCreate,
	uapi.OrdTimerCreate:              handleTimerCreate,
	uapi.OrdChangeNotifierCreate:     handleChangeNotifierCreate,
	uapi.OrdWaitDllLock:              handleWaitDllLock,
	uapi.OrdReleaseDllLock:           handleReleaseDllLock,
	uapi.OrdLibraryAttach:            handleLibraryAttach,
	uapi.OrdLibraryAttached:          handleLibraryAttached,
	uapi.OrdStaticCallList:           handleStaticCallList,
	uapi.OrdLastThreadHandle:         handleLastThreadHandle,
	uapi.OrdProcessRendezvous:        handleProcessRendezvous,
	uapi.OrdMessageGetDesLength:      handleMessageGetDesLength,
	uapi.OrdMessageGetDesMaxLength:   handleMessageGetDesMaxLength,
	uapi.OrdMessageIpcCopy:           handleMessageIpcCopy,
	uapi.OrdMessageKill:              handleMessageKill,
	uapi.OrdProcessSecurityInfo:      handleProcessSecurityInfo,
	uapi.OrdThreadSecurityInfo:       handleThreadSecurityInfo,
	uapi.OrdMessageSecurityInfo:      handleMessageSecurityInfo,
	uapi.OrdPropertyDefine:           handlePropertyDefine,
	uapi.OrdPropertyAttach:           handlePropertyAttach,
	uapi.OrdPropertySubscribe:        handlePropertySubscribe,
	uapi.OrdPropertyCancel:           handlePropertyCancel,
	uapi.OrdPropertyGetInt:           handlePropertyGetInt,
	uapi.OrdPropertyGetBin:           handlePropertyGetBin,
	uapi.OrdPropertySetInt:           handlePropertySetInt,
	uapi.OrdPropertySetBin:           handlePropertySetBin,
	uapi.OrdPropertyFindGetInt:       handlePropertyFindGetInt,
	uapi.OrdPropertyFindGetBin:       handlePropertyFindGetBin,
	uapi.OrdPropertyFindSetInt:       handlePropertyFindSetInt,
	uapi.OrdPropertyFindSetBin:       handlePropertyFindSetBin,
	uapi.OrdProcessSetDataParameter:  handleProcessSetDataParameter,
	uapi.OrdProcessGetDataParameter:  handleProcessGetDataParameter,
	uapi.OrdProcessDataParamLength:   handleProcessDataParameterLength,
	uapi.OrdPlatSecDiagnostic:        handlePlatSecDiagnostic,
	uapi.OrdExceptionDescriptor:      handleExceptionDescriptor,
	uapi.OrdThreadRequestSignal:      handleThreadRequestSignal,
	uapi.OrdLeaveStart:               handleLeaveStart,
	uapi.OrdLeaveEnd:                 handleLeaveEnd,
}

// minimalSlowOrdinals is the "9.3" minimal subset's slow-path coverage:
// slow ordinal 00 (ObjectNext) only.
var minimalSlowOrdinals = []uint32{uapi.OrdObjectNext}

// BuildTable constructs the dispatch table for rev. Revision94 wires every
// known handler; Revision93 restricts both maps to a minimal subset.
func BuildTable(rev uapi.Revision) *Table {
	t := &Table{Revision: rev, Fast: make(map[uint32]HandlerFunc), Slow: make(map[uint32]HandlerFunc)}
	switch rev {
	case uapi.Revision93:
		for _, ord := range minimalFastOrdinals {
			t.Fast[ord] = allFastHandlers[ord]
		}
		for _, ord := range minimalSlowOrdinals {
			t.Slow[ord] = allSlowHandlers[ord]
		}
	default:
		for ord, h := range allFastHandlers {
			t.Fast[ord] = h
		}
		for ord, h := range allSlowHandlers {
			t.Slow[ord] = h
		}
	}
	return t
}

// Dispatch resolves ordinal against t, invokes the handler, logs the
// outcome, and flattens the typed result to the raw int32 the guest's
// return register receives. Unknown ordinals are logged at warning level
// and return NotSupported.
func (t *Table) Dispatch(ctx *Context, caller *scheduler.Thread, ordinal uint32, args [4]uint32) int32 {
	ctx.Kernel.CurrentThread = caller.ID
	ctx.Kernel.CurrentProcess = caller.Process

	fast := ordinal&uapi.FastOrdinalBase != 0
	lookupOrdinal := ordinal &^ uapi.FastOrdinalBase
	table := t.Slow
	if fast {
		table = t.Fast
	}

	handler, ok := table[lookupOrdinal]
	if !ok {
		ctx.Log.Warn("unknown svc ordinal", "ordinal", ordinal, "fast", fast, "revision", t.Revision)
		return int32(uapi.NotSupported)
	}

	result := handler(ctx, caller, args)
	ctx.Log.Debug("svc dispatched", "ordinal", ordinal, "fast", fast, "code", result.Code)
	return FlattenInt32(result)
}
