// Package pose - COCO skeleton configuration data.
package pose

// CocoKeypointCount is the keypoint count of COCO-trained pose models.
const CocoKeypointCount = 17

// CocoKeypointNames maps keypoint indices to body parts in COCO order.
var CocoKeypointNames = []string{
	"nose",
	"left_eye", "right_eye",
	"left_ear", "right_ear",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

// CocoSkeleton lists keypoint index pairs to connect when rendering a
// COCO pose, as immutable configuration data for the drawing boundary.
var CocoSkeleton = [][2]int{
	{15, 13}, {13, 11}, {16, 14}, {14, 12}, {11, 12},
	{5, 11}, {6, 12}, {5, 6},
	{5, 7}, {6, 8}, {7, 9}, {8, 10},
	{1, 2}, {0, 1}, {0, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 6},
}
