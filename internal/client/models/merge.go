package models

// Winner identifies which side of a conflict survives. Resolution is always
// whole-record: one side entirely replaces the other, never a field-level
// merge.
type Winner int

const (
	WinnerLocal Winner = iota
	WinnerRemote
)

// ResolveListConflict decides between a local pending list edit and an
// incoming remote version of the same list. Local always wins: the local
// pending record is re-submitted during push and the remote value is
// discarded.
func ResolveListConflict(local Record[List], remote List) Winner {
	_ = remote
	if !local.Pending {
		return WinnerRemote
	}
	return WinnerLocal
}

// ResolveItemConflict decides between a local pending item and an incoming
// remote version of the same item. The side with the later UpdatedAt wins,
// compared as milliseconds since epoch; the remote must be strictly newer,
// so a tie keeps the local record. This protects check/uncheck races across
// devices.
func ResolveItemConflict(local Record[Item], remote Item) Winner {
	if !local.Pending {
		return WinnerRemote
	}
	if remote.UpdatedAt.UnixMilli() > local.Entity.UpdatedAt.UnixMilli() {
		return WinnerRemote
	}
	return WinnerLocal
}
