package tracker

import "math"

const driftEpsilon = 1e-6

// IrisDrift is how far the iris sits from the midpoint of the eye corners,
// relative to the eye width.
func IrisDrift(iris, inner, outer Point) float64 {
	return math.Abs(iris.X-(inner.X+outer.X)/2) / (math.Abs(outer.X-inner.X) + driftEpsilon)
}

// NoseOffset is the horizontal offset of the nose tip from the centre of the
// face edges. Its sign tells the turn direction.
func NoseOffset(nose, left, right Point) float64 {
	return nose.X - (left.X+right.X)/2
}

type measurement struct {
	leftDrift  float64
	rightDrift float64
	noseOffset float64
}

func measure(lm Landmarks) (measurement, error) {
	var pts [9]Point
	for i, idx := range []int{
		LeftIris, LeftEyeInner, LeftEyeOuter,
		RightIris, RightEyeInner, RightEyeOuter,
		NoseTip, LeftFaceEdge, RightFaceEdge,
	} {
		p, err := lm.At(idx)
		if err != nil {
			return measurement{}, err
		}
		pts[i] = p
	}

	return measurement{
		leftDrift:  IrisDrift(pts[0], pts[1], pts[2]),
		rightDrift: IrisDrift(pts[3], pts[4], pts[5]),
		noseOffset: NoseOffset(pts[6], pts[7], pts[8]),
	}, nil
}
