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

package alloc

import "golang.org/x/sys/unix"

// sysMemoryLimit returns the lower of RLIMIT_AS and the physical memory, 0 if neither is known.
func sysMemoryLimit() int64 {
	limit := int64(0)
	var rl unix.Rlimit
	if unix.Getrlimit(unix.RLIMIT_AS, &rl) == nil && rl.Cur != unix.RLIM_INFINITY {
		limit = clampLimit(rl.Cur)
	}
	var si unix.Sysinfo_t
	if unix.Sysinfo(&si) == nil {
		ram := clampLimit(uint64(si.Totalram) * uint64(max(si.Unit, 1)))
		if ram > 0 && (limit == 0 || ram < limit) {
			limit = ram
		}
	}
	return limit
}
