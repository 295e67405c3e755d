package refstore

import "github.com/forPelevin/topicut/internal/types"

var builtin = map[types.VideoID]types.Transcript{
	"jNQXAC9IVRw": {
		Language: "en-US",
		Segments: []types.Segment{
			{Start: 0, End: 5, Text: "Alright, so here we are in front of the elephants.", Confidence: 1},
			{Start: 5, End: 12, Text: "The cool thing about these guys is that they have really, really, really long trunks.", Confidence: 1},
			{Start: 12, End: 15, Text: "And that's cool.", Confidence: 1},
			{Start: 15, End: 19, Text: "And that's pretty much all there is to say.", Confidence: 1},
		},
	},
}
