package entity

// FragmentBpType marks the bag entry holding egg fragments.
const FragmentBpType = 1

// FragmentsPerEgg is the number of fragments composed into one egg.
const FragmentsPerEgg = 1000

// BagItem is one entry of the wallet's in-game bag.
type BagItem struct {
	BpType int `json:"bpType"`
	BpNum  int `json:"bpNum"`
}

// FragmentCount returns the fragment total held in items, or zero if no entry exists.
func FragmentCount(items []BagItem) int {
	for _, item := range items {
		if item.BpType == FragmentBpType {
			return item.BpNum
		}
	}
	return 0
}

// MintableEggs returns how many whole eggs the given fragment total can produce.
func MintableEggs(fragments int) int {
	if fragments <= 0 {
		return 0
	}
	return fragments / FragmentsPerEgg
}
