package dlob

import (
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	types3 "github.com/drift-labs/protocol-v2-sub007/userMap/types"
)

// UserMapDLOBSource rebuilds the book from every open order held in a user map.
type UserMapDLOBSource struct {
	userMap           types3.IUserMap
	perpMarketIndexes []uint16
	spotMarketIndexes []uint16
}

func CreateUserMapDLOBSource(
	userMap types3.IUserMap,
	perpMarketIndexes []uint16,
	spotMarketIndexes []uint16,
) *UserMapDLOBSource {
	return &UserMapDLOBSource{
		userMap:           userMap,
		perpMarketIndexes: perpMarketIndexes,
		spotMarketIndexes: spotMarketIndexes,
	}
}

func (p *UserMapDLOBSource) GetDLOB(slot uint64) (types.IDLOB, error) {
	dlob := NewDLOB(p.perpMarketIndexes, p.spotMarketIndexes)
	dlob.SetUserMap(p.userMap)
	dlob.InitFromUserMap(p.userMap, slot)
	return dlob, nil
}

// SnapshotDLOBSource rebuilds the book from an encoded DLOBOrders snapshot,
// e.g. one served by another process.
type SnapshotDLOBSource struct {
	load              func() ([]byte, error)
	perpMarketIndexes []uint16
	spotMarketIndexes []uint16
}

func CreateSnapshotDLOBSource(
	load func() ([]byte, error),
	perpMarketIndexes []uint16,
	spotMarketIndexes []uint16,
) *SnapshotDLOBSource {
	return &SnapshotDLOBSource{
		load:              load,
		perpMarketIndexes: perpMarketIndexes,
		spotMarketIndexes: spotMarketIndexes,
	}
}

func (p *SnapshotDLOBSource) GetDLOB(slot uint64) (types.IDLOB, error) {
	data, err := p.load()
	if err != nil {
		return nil, err
	}
	dlobOrders, err := DecodeDLOBOrders(data)
	if err != nil {
		return nil, err
	}
	dlob := NewDLOB(p.perpMarketIndexes, p.spotMarketIndexes)
	dlob.InitFromOrders(dlobOrders, slot)
	return dlob, nil
}
