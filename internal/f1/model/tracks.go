package model

import "fmt"

// trackNames maps the game's track id to a stable name. Ids are shared
// across format years 2023-2025; later titles append to the list.
var trackNames = map[int8]string{
	0:  "melbourne",
	1:  "paul_ricard",
	2:  "shanghai",
	3:  "sakhir",
	4:  "catalunya",
	5:  "monaco",
	6:  "montreal",
	7:  "silverstone",
	8:  "hockenheim",
	9:  "hungaroring",
	10: "spa",
	11: "monza",
	12: "singapore",
	13: "suzuka",
	14: "abu_dhabi",
	15: "texas",
	16: "brazil",
	17: "austria",
	18: "sochi",
	19: "mexico",
	20: "baku",
	21: "sakhir_short",
	22: "silverstone_short",
	23: "texas_short",
	24: "suzuka_short",
	25: "hanoi",
	26: "zandvoort",
	27: "imola",
	28: "portimao",
	29: "jeddah",
	30: "miami",
	31: "las_vegas",
	32: "losail",
	39: "silverstone_reverse",
	40: "austria_reverse",
	41: "zandvoort_reverse",
}

// TrackName resolves a track id, falling back to the numeric id.
func TrackName(id int8) string {
	if name, ok := trackNames[id]; ok {
		return name
	}
	return fmt.Sprintf("track_%d", id)
}
