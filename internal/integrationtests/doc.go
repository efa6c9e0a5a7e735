// Package integrationtests runs whole pipelines from HCL through the app and
// checks what stages observed.
package integrationtests
