package stripemap

import (
	"fmt"
	"testing"
)

var (
	benchData    [128]string
	benchDataInt [128]int
)

func init() {
	for i := range benchData {
		benchData[i] = fmt.Sprintf("%b", i)
	}
	for i := range benchDataInt {
		benchDataInt[i] = i
	}
}

func BenchmarkTableAt(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[string, int]()
	for i := range benchData {
		table.Insert(benchData[i], i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = table.At(benchData[i])
			i++
			if i >= len(benchData) {
				i = 0
			}
		}
	})
}

func BenchmarkTableContains(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[string, int]()
	for i := range benchData {
		table.Insert(benchData[i], i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = table.Contains(benchData[i])
			i++
			if i >= len(benchData) {
				i = 0
			}
		}
	})
}

func BenchmarkTableInsert(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[string, int]()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			table.Insert(benchData[i], i)
			i++
			if i >= len(benchData) {
				i = 0
			}
		}
	})
}

func BenchmarkTableInsertInt(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[int, int]()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			table.Insert(benchDataInt[i], i)
			i++
			if i >= len(benchDataInt) {
				i = 0
			}
		}
	})
}

// 90% reads, 10% writes over a shared key set.
func BenchmarkTableMixed(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[string, int]()
	for i := range benchData {
		table.Insert(benchData[i], i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%10 == 0 {
				table.Insert(benchData[i%len(benchData)], i)
			} else {
				_, _ = table.At(benchData[i%len(benchData)])
			}
			i++
		}
	})
}

func BenchmarkTableEraseInsert(b *testing.B) {
	b.ReportAllocs()
	table := NewTable[int, int]()
	for i := range benchDataInt {
		table.Insert(benchDataInt[i], i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := benchDataInt[i%len(benchDataInt)]
			table.Erase(key)
			table.Insert(key, i)
			i++
		}
	})
}
