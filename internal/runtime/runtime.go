// Package runtime generates the small x86 runtime stub that backs the five
// external labels generated code calls into (spec.md §6): L_halloc,
// L_raise, L_read, L_write, L_println_int. The compiler proper never calls
// an assembler (out of scope per spec.md §1), so this stub exists purely to
// let a local test harness assemble and run the emitted .s files end to end.
package runtime

// Stub is hand-written Intel-syntax x86 assembly implementing the runtime
// labels expected by generated code, using a bump allocator over a static
// heap and libc's putchar/getchar/printf for I/O.
const Stub = `  .intel_syntax noprefix
  .bss
  .align 4
L_heap_next:
  .long 0
L_heap:
  .zero 1048576

  .data
L_fmt_int:
  .asciz "%d\n"

  .text
  .global L_halloc
L_halloc:
  push ebp
  mov ebp, esp
  mov eax, [L_heap_next]
  lea eax, [L_heap + eax]
  mov ecx, [ebp + 8]
  add [L_heap_next], ecx
  pop ebp
  ret

  .global L_raise
L_raise:
  mov eax, 1
  mov ebx, [esp + 4]
  int 0x80

  .global L_read
L_read:
  push ebp
  mov ebp, esp
  sub esp, 4
  call getchar
  mov esp, ebp
  pop ebp
  ret

  .global L_write
L_write:
  push ebp
  mov ebp, esp
  push dword ptr [ebp + 8]
  call putchar
  add esp, 4
  mov esp, ebp
  pop ebp
  ret

  .global L_println_int
L_println_int:
  push ebp
  mov ebp, esp
  push dword ptr [ebp + 8]
  push offset L_fmt_int
  call printf
  add esp, 8
  mov esp, ebp
  pop ebp
  ret
`
