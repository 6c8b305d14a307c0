package ipu

// Fixed-by-ISA sizes.
const (
	RegBytes        = 128          // R_REG_BYTES: width of a single multiply-stage register
	CyclicBytes     = 512          // R_CYCLIC_BYTES: width of the cyclic ring register
	AccBytes        = 608          // R_ACC_BYTES: two TF32 vectors of 304B each
	AccTF32VecBytes = AccBytes / 2 // 304 bytes per TF32 lane vector
	AccRTWords      = 128          // rt-from-acc view: 128 x 32-bit words (512 of the 608 bytes)
	AccRTBytes      = AccRTWords * 4

	MultStageRegs = 2  // mult.r[0], mult.r[1]
	LRRegs        = 16 // lr[0..16)
	CRRegs        = 16 // cr[0..16)
	CRDtypeIndex  = 15 // cr[15] holds the active dtype

	InstMemSize = 1024

	XMemSize  = 2 << 20 // 2 MiB
	XMemWidth = 128     // aligned-block width

	TF32Width = 19 // 1 sign + 8 exp + 10 man bits, packed LSB-first
)
