// Package elements defines the closed, process-wide enumerations that the
// Data Vector, Network Manager, and State Machine are built against:
// element types, region ids, element ids, and node ids. None of these are
// open strings — every id a config references must be one of these
// constants, checked at construction time.
package elements

// Type is the closed set of element types a Data Vector element can hold.
// Arrays are explicitly unsupported.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeBool
	typeLast
)

// Width returns the byte width of the type, or 0 for TypeInvalid.
func (t Type) Width() int {
	switch t {
	case TypeU8, TypeI8, TypeBool:
		return 1
	case TypeU16, TypeI16:
		return 2
	case TypeU32, TypeI32, TypeF32:
		return 4
	case TypeU64, TypeI64, TypeF64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is one of the closed element types.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < typeLast
}

func (t Type) String() string {
	switch t {
	case TypeU8:
		return "u8"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Region is the closed enumeration of Data Vector regions.
type Region uint32

const (
	RegionInvalid Region = iota
	RegionCN              // the Control Node's own region, read by all peers
	RegionCNtoDN0
	RegionCNtoDN1
	RegionCNtoDN2
	RegionDN0toCN
	RegionDN1toCN
	RegionDN2toCN
	RegionGroundToCN
	regionLast
)

// Valid reports whether r is one of the closed region ids.
func (r Region) Valid() bool {
	return r > RegionInvalid && r < regionLast
}

func (r Region) String() string {
	switch r {
	case RegionCN:
		return "CN"
	case RegionCNtoDN0:
		return "CN_TO_DN0"
	case RegionCNtoDN1:
		return "CN_TO_DN1"
	case RegionCNtoDN2:
		return "CN_TO_DN2"
	case RegionDN0toCN:
		return "DN0_TO_CN"
	case RegionDN1toCN:
		return "DN1_TO_CN"
	case RegionDN2toCN:
		return "DN2_TO_CN"
	case RegionGroundToCN:
		return "GROUND_TO_CN"
	default:
		return "invalid"
	}
}

// Elem is the closed enumeration of Data Vector elements.
type Elem uint32

const (
	ElemInvalid Elem = iota

	ElemState // the element holding the State Machine's current state id

	ElemCNLoopCount
	ElemCNErrorCount
	ElemCNTimeNs

	ElemDN0RxMissCount
	ElemDN1RxMissCount
	ElemDN2RxMissCount

	ElemMsgTxCount
	ElemMsgRxCount

	ElemCmdReq
	ElemCmdReqSeq
	ElemCmdWriteElem
	ElemCmdWriteVal
	ElemCmd
	ElemCmdProcessedSeq

	// ElemDN0Cmd..ElemDN2Cmd hold the actuator command word a controller
	// writes into each device node's outbound region; ElemDN0Status..
	// ElemDN2Status hold the status word that device node reports back.
	// A deployment with richer per-device telemetry defines its own
	// additional elements alongside these; these are the minimum every
	// build's CN<->DNx regions need to be non-empty.
	ElemDN0Cmd
	ElemDN1Cmd
	ElemDN2Cmd
	ElemDN0Status
	ElemDN1Status
	ElemDN2Status

	elemLast
)

// Valid reports whether e is one of the closed element ids.
func (e Elem) Valid() bool {
	return e > ElemInvalid && e < elemLast
}

func (e Elem) String() string {
	switch e {
	case ElemState:
		return "STATE"
	case ElemCNLoopCount:
		return "CN_LOOP_COUNT"
	case ElemCNErrorCount:
		return "CN_ERROR_COUNT"
	case ElemCNTimeNs:
		return "CN_TIME_NS"
	case ElemDN0RxMissCount:
		return "DN0_RX_MISS_COUNT"
	case ElemDN1RxMissCount:
		return "DN1_RX_MISS_COUNT"
	case ElemDN2RxMissCount:
		return "DN2_RX_MISS_COUNT"
	case ElemMsgTxCount:
		return "MSG_TX_COUNT"
	case ElemMsgRxCount:
		return "MSG_RX_COUNT"
	case ElemCmdReq:
		return "CMD_REQ"
	case ElemCmdReqSeq:
		return "CMD_REQ_SEQ"
	case ElemCmdWriteElem:
		return "CMD_WRITE_ELEM"
	case ElemCmdWriteVal:
		return "CMD_WRITE_VAL"
	case ElemCmd:
		return "CMD"
	case ElemCmdProcessedSeq:
		return "CMD_PROCESSED_SEQ"
	case ElemDN0Cmd:
		return "DN0_CMD"
	case ElemDN1Cmd:
		return "DN1_CMD"
	case ElemDN2Cmd:
		return "DN2_CMD"
	case ElemDN0Status:
		return "DN0_STATUS"
	case ElemDN1Status:
		return "DN1_STATUS"
	case ElemDN2Status:
		return "DN2_STATUS"
	default:
		return "invalid"
	}
}

// Node is the closed enumeration of network peers.
type Node uint8

const (
	NodeInvalid Node = iota
	NodeControl
	NodeDevice0
	NodeDevice1
	NodeDevice2
	NodeGround
	nodeLast
)

// Valid reports whether n is one of the closed node ids.
func (n Node) Valid() bool {
	return n > NodeInvalid && n < nodeLast
}

func (n Node) String() string {
	switch n {
	case NodeControl:
		return "CONTROL"
	case NodeDevice0:
		return "DEVICE0"
	case NodeDevice1:
		return "DEVICE1"
	case NodeDevice2:
		return "DEVICE2"
	case NodeGround:
		return "GROUND"
	default:
		return "invalid"
	}
}

// DeviceNodes is the fixed, ordered list of device-node peers the Control
// Node coordinates.
var DeviceNodes = [3]Node{NodeDevice0, NodeDevice1, NodeDevice2}
