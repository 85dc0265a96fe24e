package domain

import (
	"errors"
	"math"
	"testing"
)

func TestAssignBucket(t *testing.T) {
	buckets := DefaultPriceBuckets()

	tests := []struct {
		name  string
		price float64
		want  string
	}{
		{"zero", 0, BucketUpTo200},
		{"upper limit inclusive", 200, BucketUpTo200},
		{"just above", 200.01, Bucket200To300},
		{"second limit", 300, Bucket200To300},
		{"third bucket", 350, Bucket300To400},
		{"open ended", 10000, BucketOver400},
		{"negative", -5, BucketUpTo200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssignBucket(buckets, tt.price)
			if err != nil {
				t.Fatalf("AssignBucket(%v) error = %v", tt.price, err)
			}
			if got.Label != tt.want {
				t.Errorf("AssignBucket(%v) = %q, want %q", tt.price, got.Label, tt.want)
			}
		})
	}
}

func TestAssignBucket_Errors(t *testing.T) {
	if _, err := AssignBucket(DefaultPriceBuckets(), math.NaN()); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("NaN price: got %v, want ErrInvalidPrice", err)
	}

	bounded := []PriceBucket{{UpperLimit: 100, Label: "low", Order: 1}}
	if _, err := AssignBucket(bounded, 150); !errors.Is(err, ErrBucketNotFound) {
		t.Errorf("out of range price: got %v, want ErrBucketNotFound", err)
	}
}

func TestBucketRange(t *testing.T) {
	buckets := DefaultPriceBuckets()

	tests := []struct {
		label   string
		wantMin *float64
		wantMax *float64
		wantOK  bool
	}{
		{BucketUpTo200, nil, ptr(200), true},
		{Bucket200To300, ptr(200), ptr(300), true},
		{Bucket300To400, ptr(300), ptr(400), true},
		{BucketOver400, ptr(400), nil, true},
		{"otro", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r, ok := BucketRange(buckets, tt.label)
			if ok != tt.wantOK {
				t.Fatalf("BucketRange(%q) ok = %v, want %v", tt.label, ok, tt.wantOK)
			}
			if !sameBound(r.Min, tt.wantMin) || !sameBound(r.Max, tt.wantMax) {
				t.Errorf("BucketRange(%q) = [%v, %v]", tt.label, deref(r.Min), deref(r.Max))
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
