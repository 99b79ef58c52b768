/*
 * Copyright 2026 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package vec

// Sequence is the set of operations shared by Vec and Static.
type Sequence[T any] interface {
	Len() int
	Cap() int
	IsEmpty() bool

	Push(value T) error
	Pop() (T, bool)
	Last() (T, bool)
	Get(i int) (T, error)
	GetMut(i int) (*T, error)
	Set(i int, value T) error
	Insert(i int, value T) error
	Remove(i int) (T, error)
	SwapRemove(i int) (T, error)
	Truncate(n int)
	Clear()
	Reserve(additional int) error
	Extend(vals ...T) error
	Retain(keep func(*T) bool)
	DedupFunc(same func(cur, prev *T) bool)
	Slice() []T
}

// The helpers below work on s, the whole capacity of a sequence, and n, its length.

// insertAt needs n < len(s).
func insertAt[T any](s []T, n, i int, value T) int {
	if i < n {
		copy(s[i+1:n+1], s[i:n])
	}
	s[i] = value
	return n + 1
}

func removeAt[T any](s []T, n, i int) (T, int) {
	value := s[i]
	copy(s[i:n-1], s[i+1:n])
	clear(s[n-1 : n])
	return value, n - 1
}

func swapRemoveAt[T any](s []T, n, i int) (T, int) {
	value := s[i]
	s[i] = s[n-1]
	clear(s[n-1 : n])
	return value, n - 1
}

func retain[T any](s []T, n int, keep func(*T) bool) int {
	w := 0
	for r := 0; r < n; r++ {
		if !keep(&s[r]) {
			continue
		}
		if w != r {
			s[w] = s[r]
		}
		w++
	}
	clear(s[w:n])
	return w
}

func dedup[T any](s []T, n int, same func(cur, prev *T) bool) int {
	if n < 2 {
		return n
	}
	w := 1
	for r := 1; r < n; r++ {
		if same(&s[r], &s[w-1]) {
			continue
		}
		if w != r {
			s[w] = s[r]
		}
		w++
	}
	clear(s[w:n])
	return w
}
