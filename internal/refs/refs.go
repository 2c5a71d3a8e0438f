/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
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

// Package refs provides operations over ordered lists of unique references,
// the items of bundles and the issues of journals.
package refs

// Contains returns whether the list holds the given reference.
func Contains(list []string, ref string) bool {
	return IndexOf(list, ref) >= 0
}

// IndexOf returns the position of the given reference or -1.
func IndexOf(list []string, ref string) int {
	for i, item := range list {
		if item == ref {
			return i
		}
	}
	return -1
}

// Insert inserts the reference before the given index. Negative indexes
// count from the end and out-of-range indexes are clamped, so -10 inserts
// at the front of a short list and 10 appends to it.
func Insert(list []string, index int, ref string) []string {
	n := len(list)
	if index < 0 {
		index += n
		if index < 0 {
			index = 0
		}
	}
	if index > n {
		index = n
	}

	result := make([]string, 0, n+1)
	result = append(result, list[:index]...)
	result = append(result, ref)
	return append(result, list[index:]...)
}

// Remove returns the list without the given reference, and whether it was
// present.
func Remove(list []string, ref string) ([]string, bool) {
	i := IndexOf(list, ref)
	if i < 0 {
		return list, false
	}

	result := make([]string, 0, len(list)-1)
	result = append(result, list[:i]...)
	return append(result, list[i+1:]...), true
}

// Duplicate returns the first reference that appears twice in the list.
func Duplicate(list []string) (string, bool) {
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		if _, ok := seen[item]; ok {
			return item, true
		}
		seen[item] = struct{}{}
	}
	return "", false
}

// Clone returns a copy of the list that is never nil.
func Clone(list []string) []string {
	clone := make([]string, len(list))
	copy(clone, list)
	return clone
}
