// Copyright (C) 2016-2018  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

// Package xlog wraps glog with a "component: message" prefix, the way
// internal/log prepends the current task's name in the teacher repo. This
// package has no task-stack analogue: the prefix is just the name of
// whichever Context, Connection or Server emitted the line.
package xlog

import (
	"fmt"

	"github.com/golang/glog"
)

func withName(name string, argv []interface{}) []interface{} {
	if name == "" {
		return argv
	}
	return append([]interface{}{name + ": "}, argv...)
}

func Info(name string, argv ...interface{}) {
	glog.InfoDepth(1, withName(name, argv)...)
}

func Infof(name, format string, argv ...interface{}) {
	glog.InfoDepth(1, withName(name, []interface{}{fmt.Sprintf(format, argv...)})...)
}

func Warningf(name, format string, argv ...interface{}) {
	glog.WarningDepth(1, withName(name, []interface{}{fmt.Sprintf(format, argv...)})...)
}

func Errorf(name, format string, argv ...interface{}) {
	glog.ErrorDepth(1, withName(name, []interface{}{fmt.Sprintf(format, argv...)})...)
}
