// Package common provides the logging setup shared by the library packages
// and the command line tool.
//
// Logging goes through the logger facade of Dragonboat
// ("github.com/lni/dragonboat/v4/logger"). Library packages obtain a named
// logger with logger.GetLogger and never configure it themselves; the
// application calls InitLoggers once to install CreateLogger as factory and to
// set the level of every module logger.
//
// Output format:
//
//	2025/01/02 15:04:05 DEBUG | klist    | legacy adapter attached
package common
